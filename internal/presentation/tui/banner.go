package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII banner for the interactive chat.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	s1 := termenv.String("   ___                _                ").Foreground(p.Color("#818cf8"))
	s2 := termenv.String("  / __|___ _ _  __ _ ___ _ _ __ _ ___  ").Foreground(p.Color("#a78bfa"))
	s3 := termenv.String(" | (__/ _ \\ ' \\/ _| / -_) '_/ _` / -_)").Foreground(p.Color("#c084fc"))
	s4 := termenv.String("  \\___\\___/_||_\\__|_\\___|_| \\__, \\___|").Foreground(p.Color("#e879f9"))
	s5 := termenv.String("                            |___/      ").Foreground(p.Color("#f472b6"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(termenv.String("  concierge " + version).Foreground(p.Color("#94a3b8")))
	fmt.Println()
}
