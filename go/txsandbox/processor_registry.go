// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package txsandbox

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
)

// This file provides a registry for Processor implementations. For an
// implementation to be available it needs to be registered, typically as part
// of the init code of the package providing it. Thus, by importing the
// implementation package, a processor becomes available in this registry.

// ProcessorFactory is the type of a function that creates a new Processor.
type ProcessorFactory func() Processor

// NewProcessor performs a lookup for the given name (case-insensitive) in the
// registry and creates a new Processor instance. An error is returned if no
// factory was registered under the given name.
func NewProcessor(name string) (Processor, error) {
	factory := GetProcessorFactory(name)
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProcessor, name)
	}
	return factory(), nil
}

// GetProcessorFactory performs a lookup for the given name (case-insensitive)
// in the registry. The result is nil if no factory was registered under the
// given name.
func GetProcessorFactory(name string) ProcessorFactory {
	processorRegistryLock.Lock()
	defer processorRegistryLock.Unlock()
	return processorRegistry[strings.ToLower(name)]
}

// GetAllRegisteredProcessorFactories obtains all registered factories.
func GetAllRegisteredProcessorFactories() map[string]ProcessorFactory {
	processorRegistryLock.Lock()
	defer processorRegistryLock.Unlock()
	return maps.Clone(processorRegistry)
}

// RegisterProcessorFactory registers a new Processor implementation to be
// exported for general use in the binary. The name is not case-sensitive. An
// error is returned if a factory was bound to the same name before, or the
// factory is nil.
func RegisterProcessorFactory(name string, factory ProcessorFactory) error {
	key := strings.ToLower(name)
	if factory == nil {
		return fmt.Errorf("invalid initialization: cannot register nil-factory using `%s`", key)
	}
	processorRegistryLock.Lock()
	defer processorRegistryLock.Unlock()
	if _, found := processorRegistry[key]; found {
		return fmt.Errorf("invalid initialization: multiple factories registered for `%s`", key)
	}
	processorRegistry[key] = factory
	return nil
}

// MustRegisterProcessorFactory is like RegisterProcessorFactory but panics on
// failure. It is intended for package initialization code.
func MustRegisterProcessorFactory(name string, factory ProcessorFactory) {
	if err := RegisterProcessorFactory(name, factory); err != nil {
		panic(err)
	}
}

var processorRegistry = map[string]ProcessorFactory{}

var processorRegistryLock sync.Mutex
