package uid

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init sets up the snowflake node. The machine ID must be unique per
// running instance (0-1023).
func Init(machineID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(machineID)
	})
	if err != nil {
		return fmt.Errorf("failed to initialize snowflake node: %w", err)
	}
	return nil
}

func Generate() int64 {
	if node == nil {
		panic("uid package not initialized")
	}
	return node.Generate().Int64()
}
