package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const nodeType = "PipeWire:Interface:Node"

// NodeLocator finds the PipeWire node of an application's stream via pw-dump.
type NodeLocator struct {
	Runner Runner
}

func NewNodeLocator(runner Runner) *NodeLocator {
	return &NodeLocator{Runner: runner}
}

// Locate returns the id of the newest node matching app and the media class prefix.
func (l *NodeLocator) Locate(ctx context.Context, app, classPrefix string) (int, error) {
	stdout, _, err := l.Runner.Run(ctx, "pw-dump")
	if err != nil {
		return 0, fmt.Errorf("listing pipewire objects: %w", err)
	}
	if strings.TrimSpace(string(stdout)) == "" {
		return 0, fmt.Errorf("pw-dump returned no output: %w", ErrNoNode)
	}
	return SelectNode(stdout, app, classPrefix)
}

type pwObject struct {
	ID   *int   `json:"id"`
	Type string `json:"type"`
	Info *struct {
		Props map[string]any `json:"props"`
	} `json:"info"`
}

// SelectNode picks the highest node id among pw-dump objects that match.
func SelectNode(dump []byte, app, classPrefix string) (int, error) {
	var objects []pwObject
	if err := json.Unmarshal(dump, &objects); err != nil {
		return 0, fmt.Errorf("parsing pw-dump output: %w", err)
	}

	best := -1
	for _, obj := range objects {
		if obj.Type != nodeType || obj.ID == nil || obj.Info == nil {
			continue
		}
		name, _ := obj.Info.Props["application.name"].(string)
		if name != app {
			continue
		}
		class, _ := obj.Info.Props["media.class"].(string)
		if !strings.HasPrefix(class, classPrefix) {
			continue
		}
		if *obj.ID > best {
			best = *obj.ID
		}
	}

	if best < 0 {
		return 0, fmt.Errorf("%s (%s): %w", app, classPrefix, ErrNoNode)
	}
	return best, nil
}
