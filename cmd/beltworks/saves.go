package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/beltworks/internal/storage"
)

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "Manage saved factories",
	Long: `List, inspect and delete factories saved with 'run --save' or the
save key in 'watch'.

Examples:
  beltworks saves list
  beltworks saves broken bench
  beltworks saves delete bench`,
}

var savesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saves, newest first",
	Args:  cobra.NoArgs,
	Run:   runSavesList,
}

var savesMachinesCmd = &cobra.Command{
	Use:   "machines <name>",
	Short: "Show the machines stored with a save",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		showMachines(args[0], false)
	},
}

var savesBrokenCmd = &cobra.Command{
	Use:   "broken <name>",
	Short: "Show the machines that were broken when a save was taken",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		showMachines(args[0], true)
	},
}

var savesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a save",
	Args:  cobra.ExactArgs(1),
	Run:   runSavesDelete,
}

func init() {
	savesCmd.AddCommand(savesListCmd, savesMachinesCmd, savesBrokenCmd, savesDeleteCmd)
}

func openStore() *storage.Store {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		exitf("opening saves database: %v", err)
	}
	return store
}

func runSavesList(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	saves, err := store.ListSaves()
	if err != nil {
		store.Close()
		exitf("retrieving saves: %v", err)
	}

	if len(saves) == 0 {
		fmt.Println("No saves yet.")
		fmt.Println()
		fmt.Println("Run 'beltworks run --beats 100 --save <name>' to create one.")
		return
	}

	fmt.Printf("  %-16s  %-12s  %6s  %8s  %6s  %5s  %s\n", "Name", "Scenario", "Beat", "Machines", "Broken", "Belts", "Saved")
	fmt.Printf("  %-16s  %-12s  %6s  %8s  %6s  %5s  %s\n", "----", "--------", "----", "--------", "------", "-----", "-----")
	for _, s := range saves {
		fmt.Printf("  %-16s  %-12s  %6d  %8d  %6d  %5d  %s\n",
			s.Name, s.Scenario, s.Beat, s.Machines, s.Broken, s.Belts, s.CreatedAt.Format("2006-01-02 15:04"))
	}
}

func showMachines(name string, brokenOnly bool) {
	store := openStore()
	defer store.Close()

	var (
		rows []storage.MachineRow
		err  error
	)
	if brokenOnly {
		rows, err = store.BrokenMachines(name)
	} else {
		rows, err = store.MachineStates(name)
	}
	if err != nil {
		store.Close()
		exitf("%v", err)
	}

	if len(rows) == 0 {
		fmt.Printf("No machines to show for %q.\n", name)
		return
	}

	fmt.Printf("  %-4s  %-12s  %-8s  %-6s  %-7s  %6s  %s\n", "ID", "Kind", "At", "Facing", "Broken", "Wear", "Pending")
	fmt.Printf("  %-4s  %-12s  %-8s  %-6s  %-7s  %6s  %s\n", "--", "----", "--", "------", "------", "----", "-------")
	for _, r := range rows {
		fmt.Printf("  %-4d  %-12s  %-8s  %-6s  %-7t  %6.1f  %d\n",
			r.MachineID, r.Kind, fmt.Sprintf("(%d,%d)", r.X, r.Y), r.Orientation, r.Broken, r.BreakChance, r.Pending)
	}
}

func runSavesDelete(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	if err := store.DeleteSave(args[0]); err != nil {
		store.Close()
		exitf("%v", err)
	}
	fmt.Printf("Deleted %q.\n", args[0])
}
