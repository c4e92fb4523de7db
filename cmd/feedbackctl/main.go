package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/feedbackhub/internal/adminctl"
)

func main() {
	if err := adminctl.NewRootCmd(adminctl.OpenServices).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
