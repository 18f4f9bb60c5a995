package main

import "os"

func main() {
	if err := Execute(); err != nil {
		log.WithError(err).Error("noise-pipe exiting")
		os.Exit(1)
	}
}
