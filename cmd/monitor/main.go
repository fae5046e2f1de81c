package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"yt2x/monitor/tui"
)

func main() {
	// Load environment
	_ = godotenv.Load()

	url := flag.String("url", "http://localhost:8080", "yt2x status API URL")
	flag.Parse()

	program := tea.NewProgram(tui.NewModel(*url))

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
