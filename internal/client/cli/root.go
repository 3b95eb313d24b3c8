package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	s := "offline"
	if a.coord.Online() {
		s = "online"
	}
	if id := a.session.Current(); id != nil {
		if id.Anonymous {
			s = "anonymous " + s
		} else {
			s = id.Provider + " " + s
		}
	}
	return fmt.Sprintf("(%s)", s)
}

// Root runs the interactive loop until the user exits or stdin is closed.
func (a *App) Root(ctx context.Context) {
	fmt.Println("Welcome to Daybook CLI (type 'help' for commands)")

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
