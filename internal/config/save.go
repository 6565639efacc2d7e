package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveManagers replaces the managers section of the config file.
// This preserves comments and formatting in other sections by using yaml.Node.
func SaveManagers(configPath string, managers []ManagerConfig) error {
	node, err := buildManagersNode(managers)
	if err != nil {
		return fmt.Errorf("building managers node: %w", err)
	}
	return saveSection(configPath, "managers", node)
}

// AddManager appends m to the managers declared in the config file.
func AddManager(configPath string, existing []ManagerConfig, m ManagerConfig) error {
	updated := make([]ManagerConfig, 0, len(existing)+1)
	updated = append(updated, existing...)
	updated = append(updated, m)
	if err := ValidateManagers(updated); err != nil {
		return err
	}
	return SaveManagers(configPath, updated)
}

// RemoveManager removes the manager named name from the config file.
func RemoveManager(configPath string, existing []ManagerConfig, name string) error {
	updated := make([]ManagerConfig, 0, len(existing))
	found := false
	for _, m := range existing {
		if m.Name == name {
			found = true
			continue
		}
		updated = append(updated, m)
	}
	if !found {
		return fmt.Errorf("manager %q is not declared", name)
	}
	if err := ValidateManagers(updated); err != nil {
		return err
	}
	return SaveManagers(configPath, updated)
}

// SaveExtensions replaces the extensions section of the config file.
func SaveExtensions(configPath string, ids []string) error {
	if err := ValidateExtensions(ids); err != nil {
		return err
	}
	node := &yaml.Node{}
	if err := node.Encode(ids); err != nil {
		return fmt.Errorf("building extensions node: %w", err)
	}
	return saveSection(configPath, "extensions", node)
}

// buildManagersNode creates a yaml.Node representing the managers array.
func buildManagersNode(managers []ManagerConfig) (*yaml.Node, error) {
	node := &yaml.Node{
		Kind:    yaml.SequenceNode,
		Content: make([]*yaml.Node, 0, len(managers)),
	}
	for _, m := range managers {
		managerNode := &yaml.Node{}
		if err := managerNode.Encode(m); err != nil {
			return nil, fmt.Errorf("manager %s: %w", m.Name, err)
		}
		node.Content = append(node.Content, managerNode)
	}
	return node, nil
}

// saveSection sets key at the document root to value and writes the file atomically.
func saveSection(configPath, key string, value *yaml.Node) error {
	// Read existing file content
	data, err := os.ReadFile(configPath) //nolint:gosec // G304: config path is user supplied
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	// Parse into yaml.Node to preserve comments
	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	if doc.Kind == 0 {
		// Empty or new file - create document structure
		doc = yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{
				{
					Kind: yaml.MappingNode,
					Content: []*yaml.Node{
						{Kind: yaml.ScalarNode, Value: key},
						value,
					},
				},
			},
		}
	} else if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root := doc.Content[0]
		if root.Kind != yaml.MappingNode {
			return fmt.Errorf("parsing config: document root is not a mapping")
		}
		found := false
		for i := 0; i < len(root.Content)-1; i += 2 {
			if root.Content[i].Value == key {
				root.Content[i+1] = value
				found = true
				break
			}
		}
		if !found {
			root.Content = append(root.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: key},
				value,
			)
		}
	}

	// Marshal back to YAML
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	// Write atomically (write to temp, then rename)
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".entityreg.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(buf.Bytes()); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}
