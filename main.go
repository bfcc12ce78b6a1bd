// Command pdftextapi serves and runs the text extraction pipelines.
package main

import "github.com/einantonio/pdf-text-api/cmd"

func main() {
	cmd.Execute()
}
