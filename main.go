// Racebar turns Git history into racing bar chart frames.
package main

import (
	"github.com/huangsam/racebar/cmd"
	"github.com/huangsam/racebar/internal/contract"
	"github.com/huangsam/racebar/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	err := cmd.Execute()
	// LogFatal exits, so stores are closed explicitly first
	iocache.CloseStores()
	if err != nil {
		contract.LogFatal("racebar failed", err)
	}
}
