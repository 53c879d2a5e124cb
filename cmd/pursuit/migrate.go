package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/banshee-data/pursuit/internal/db"
)

// runMigrate handles "pursuit -db FILE migrate <action>". It opens the
// database without the automatic upgrade that db.Open performs.
func runMigrate(path string, args []string) error {
	if path == "" {
		return errors.New("-db is required")
	}
	if len(args) == 0 {
		return errors.New("missing action: up, down, version or force N")
	}

	store, err := db.OpenRaw(path)
	if err != nil {
		return err
	}
	defer store.Close()

	switch args[0] {
	case "up":
		if err := store.MigrateUp(); err != nil {
			return err
		}
	case "down":
		if err := store.MigrateDown(); err != nil {
			return err
		}
	case "force":
		if len(args) < 2 {
			return errors.New("force needs a version")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := store.MigrateForce(v); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown action %q", args[0])
	}

	v, dirty, err := store.MigrateVersion()
	if err != nil {
		return err
	}
	fmt.Printf("schema version %d (dirty=%t)\n", v, dirty)
	return nil
}
