// Command ytnotify subscribes to YouTube channel feeds over WebSub and
// prints every verified handshake and delivered video update.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
