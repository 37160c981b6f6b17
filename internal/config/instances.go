package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// InstanceType identifies the kind of niiview host process.
type InstanceType string

const (
	InstanceServe InstanceType = "serve"
	InstanceStdio InstanceType = "stdio"
	InstanceMCP   InstanceType = "mcp"
)

// Instance is a running niiview host, recorded so other commands can find
// a server to talk to.
type Instance struct {
	Type      InstanceType `json:"type"`
	PID       int          `json:"pid"`
	Port      int          `json:"port,omitempty"`
	Host      string       `json:"host,omitempty"`
	StartedAt time.Time    `json:"started_at"`
}

// URL returns the base URL of a serve instance.
func (i Instance) URL() string {
	host := i.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, i.Port)
}

func instancesPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "instances.json"), nil
}

// RegisterInstance records inst, dropping entries for dead processes.
func RegisterInstance(inst Instance) error {
	path, err := instancesPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	list, _ := readInstances(path)
	list = append(live(list), inst)
	return writeInstances(path, list)
}

// UnregisterInstance removes the entry for pid.
func UnregisterInstance(pid int) error {
	path, err := instancesPath()
	if err != nil {
		return err
	}
	list, _ := readInstances(path)
	kept := list[:0]
	for _, inst := range list {
		if inst.PID != pid {
			kept = append(kept, inst)
		}
	}
	return writeInstances(path, kept)
}

// ListInstances returns the live instances.
func ListInstances() ([]Instance, error) {
	path, err := instancesPath()
	if err != nil {
		return nil, err
	}
	list, err := readInstances(path)
	if err != nil {
		return nil, err
	}
	alive := live(list)
	if len(alive) != len(list) {
		writeInstances(path, alive)
	}
	return alive, nil
}

// FindServe returns the most recently started serve instance, or nil.
func FindServe() *Instance {
	list, err := ListInstances()
	if err != nil {
		return nil
	}
	var found *Instance
	for i := range list {
		if list[i].Type != InstanceServe {
			continue
		}
		if found == nil || list[i].StartedAt.After(found.StartedAt) {
			found = &list[i]
		}
	}
	return found
}

func readInstances(path string) ([]Instance, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []Instance
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func writeInstances(path string, list []Instance) error {
	if list == nil {
		list = []Instance{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func live(list []Instance) []Instance {
	out := make([]Instance, 0, len(list))
	for _, inst := range list {
		if processAlive(inst.PID) {
			out = append(out, inst)
		}
	}
	return out
}
