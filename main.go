package main

import (
	"log"

	"github.com/autoshop-crm/reminderd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
