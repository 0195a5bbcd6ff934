// Copyright © 2024 The Quill authors

package main

import "github.com/luthersystems/quill/cmd"

func main() {
	cmd.Execute()
}
