package main

import (
	"os"

	"stuti/cmd"

	log "github.com/sirupsen/logrus"
)

func main() {
	if err := cmd.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
