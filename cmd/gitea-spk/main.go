package main

import "github.com/oshokin/gitea-spk/cmd/gitea-spk/cmd"

func main() {
	cmd.Execute()
}
