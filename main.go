// Command rowscope classifies DRAM access-timing captures.
package main

import (
	"github.com/huangsam/rowscope/cmd"
	"github.com/huangsam/rowscope/internal/contract"
	"github.com/huangsam/rowscope/internal/iocache"
)

func main() {
	defer iocache.CloseStores()

	cmd.SetCacheManager(iocache.Manager)

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if err != nil {
		// LogFatal exits, so close the stores first
		iocache.CloseStores()
		contract.LogFatal("Command failed", err)
	}
}
