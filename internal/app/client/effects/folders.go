package effects

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DirFolderCreator creates session folders under a base directory, one per
// booking, named by client and date.
type DirFolderCreator struct {
	Base string
}

func (c *DirFolderCreator) CreateSessionFolder(_ context.Context, clientName, sessionID string, at time.Time, _ map[string]string) (string, error) {
	// Ids are normally UUIDs, but a shorter one must not panic the slice.
	short := sessionID
	if len(short) > 8 {
		short = short[:8]
	}
	name := fmt.Sprintf("%s_%s_%s", at.Format("2006-01-02"), clientName, short)
	path := filepath.Join(c.Base, name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("create session folder: %w", err)
	}
	return path, nil
}
