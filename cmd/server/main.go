package main

import "github.com/nikolabisercic/whisper-gpu-realtime/internal/bootstrap"

func main() {
	bootstrap.Run()
}
