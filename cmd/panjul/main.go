// Command panjul is a terminal and browser chat client for Google Gemini.
package main

import "github.com/diogo/panjul/internal/commands"

func main() {
	commands.Execute()
}
