package uid

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/labstack/gommon/log"
)

const defaultNodeID = 1

var (
	mu   sync.Mutex
	node *snowflake.Node
)

// Init binds the generator to machineID. It may be called once at startup,
// later calls replace the node.
func Init(machineID int64) error {
	n, err := snowflake.NewNode(machineID)
	if err != nil {
		return fmt.Errorf("failed to initialize snowflake node %d: %w", machineID, err)
	}

	mu.Lock()
	node = n
	mu.Unlock()
	return nil
}

// Generate returns a new unique id. Without Init the default node is used.
func Generate() int64 {
	mu.Lock()
	defer mu.Unlock()

	if node == nil {
		n, err := snowflake.NewNode(defaultNodeID)
		if err != nil {
			log.Fatalf("failed to initialize default snowflake node: %v", err)
		}
		log.Warnf("uid package used before Init, falling back to node %d", defaultNodeID)
		node = n
	}
	return node.Generate().Int64()
}
