package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	if a.isLoggedIn() {
		return "(signed in)"
	}
	return "(signed out)"
}

// Root runs the interactive loop until the user exits.
func (a *App) Root(ctx context.Context) {
	fmt.Println("Welcome to TaskVault CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
