// Package main is the entrypoint of the bikebin CLI.
package main

import (
	"github.com/huangsam/bikebin/cmd"
	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/internal/store"
)

func main() {
	defer store.CloseStores()
	cmd.SetStoreManager(store.Manager)

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if err != nil {
		store.CloseStores()
		contract.LogFatal("Error", err)
	}
}
