package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/errors"
)

// ConnectorInfo describes a registered connector type
type ConnectorInfo struct {
	Type        string             `json:"type"`
	Kind        core.ConnectorKind `json:"kind"`
	Description string             `json:"description"`
	Required    []string           `json:"required,omitempty"`
	Optional    []string           `json:"optional,omitempty"`
	Checkable   bool               `json:"checkable"`
}

// ConnectorCatalog manages connector metadata
type ConnectorCatalog struct {
	connectors map[string]*ConnectorInfo
	mu         sync.RWMutex
}

// NewConnectorCatalog creates a new connector catalog
func NewConnectorCatalog() *ConnectorCatalog {
	return &ConnectorCatalog{
		connectors: make(map[string]*ConnectorInfo),
	}
}

func catalogKey(kind core.ConnectorKind, connectorType string) string {
	return string(kind) + "/" + connectorType
}

// Register adds a connector to the catalog
func (c *ConnectorCatalog) Register(info *ConnectorInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := catalogKey(info.Kind, info.Type)
	if _, exists := c.connectors[key]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("connector %s already in catalog", key))
	}

	c.connectors[key] = info
	return nil
}

// Get retrieves connector information
func (c *ConnectorCatalog) Get(kind core.ConnectorKind, connectorType string) (*ConnectorInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, exists := c.connectors[catalogKey(kind, connectorType)]
	if !exists {
		return nil, errors.New(errors.ErrorTypeUnknownConnector,
			fmt.Sprintf("%s connector %s not found in catalog", kind, connectorType))
	}
	return info, nil
}

// List returns all connectors ordered by kind then type
func (c *ConnectorCatalog) List() []*ConnectorInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]*ConnectorInfo, 0, len(c.connectors))
	for _, info := range c.connectors {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Kind != infos[j].Kind {
			return infos[i].Kind < infos[j].Kind
		}
		return infos[i].Type < infos[j].Type
	})
	return infos
}

// Global catalog instance
var globalCatalog = NewConnectorCatalog()

// RegisterConnectorInfo registers connector information in the global catalog
func RegisterConnectorInfo(info *ConnectorInfo) error {
	return globalCatalog.Register(info)
}

// GetConnectorInfo retrieves connector information from the global catalog
func GetConnectorInfo(kind core.ConnectorKind, connectorType string) (*ConnectorInfo, error) {
	return globalCatalog.Get(kind, connectorType)
}

// ListConnectorInfo lists all connectors in the global catalog
func ListConnectorInfo() []*ConnectorInfo {
	return globalCatalog.List()
}
