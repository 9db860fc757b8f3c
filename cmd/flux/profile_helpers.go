package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"flux/internal/prof"
)

var profSession *prof.Session

func startProfiling(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	cpu, _ := flags.GetString("cpu-profile")
	mem, _ := flags.GetString("mem-profile")
	rt, _ := flags.GetString("runtime-trace")
	if cpu == "" && mem == "" && rt == "" {
		return nil
	}
	s, err := prof.Start(prof.Config{CPUPath: cpu, MemPath: mem, TracePath: rt})
	if err != nil {
		return err
	}
	profSession = s
	return nil
}

func stopProfiling() {
	if err := profSession.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "profile: %v\n", err)
	}
	profSession = nil
}
