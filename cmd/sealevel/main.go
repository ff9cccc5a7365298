// X1-Sealevel inspection tool.
//
// Prints the syscall table for a feature snapshot, computes syscall name
// hashes, and derives program addresses from the command line.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fortiblox/X1-Sealevel/internal/types"
	"github.com/fortiblox/X1-Sealevel/pkg/cu"
	"github.com/fortiblox/X1-Sealevel/pkg/features"
	"github.com/fortiblox/X1-Sealevel/pkg/runtime"
	"github.com/fortiblox/X1-Sealevel/pkg/syscall"
	"github.com/fortiblox/X1-Sealevel/pkg/sysvar"
)

var (
	Version = "0.1.0"
)

var (
	listSyscalls = flag.Bool("list", false, "Print the syscall table and exit")
	allFeatures  = flag.Bool("all-features", true, "Build the table with every feature gate active")
	hashName     = flag.String("hash", "", "Print the dispatch hash of a syscall name")
	deriveSeeds  = flag.String("derive", "", "Comma-separated seeds for program address derivation")
	programID    = flag.String("program", "", "Base58 program id for -derive")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("X1-Sealevel %s\n", Version)
		return
	}

	switch {
	case *hashName != "":
		fmt.Printf("%s = 0x%08x\n", *hashName, syscall.Hash(*hashName))

	case *listSyscalls:
		cfg := runtime.DefaultConfig()
		if !*allFeatures {
			cfg.Features = features.NewSet()
		}
		ic := runtime.NewInvokeContext(cfg, cu.NewMeter(cfg.Budget.ComputeUnitLimit), &sysvar.Cache{}, runtime.NewAccounts(nil))
		for _, d := range syscall.NewRegistry(ic).Descriptors() {
			fmt.Printf("0x%08x  %s\n", d.Hash, d.Name)
		}

	case *deriveSeeds != "":
		if *programID == "" {
			fmt.Fprintln(os.Stderr, "error: -derive requires -program")
			os.Exit(1)
		}
		pid, err := types.PubkeyFromBase58(*programID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: invalid program id: %v\n", err)
			os.Exit(1)
		}
		var seeds [][]byte
		for _, s := range strings.Split(*deriveSeeds, ",") {
			seeds = append(seeds, []byte(s))
		}
		budget := cu.DefaultBudget()
		addr, bump, err := runtime.FindProgramAddress(cu.NewMeter(budget.ComputeUnitLimit), budget, seeds, pid)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s (bump %d)\n", addr, bump)

	default:
		flag.Usage()
		os.Exit(2)
	}
}
