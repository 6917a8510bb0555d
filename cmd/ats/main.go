// Command ats serves the CV ranking API and ranks CVs from the command line.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
