// Package events provides types and interfaces for an event-driven architecture.
//
// This package defines event types and handler interfaces that allow for loose coupling
// between components in the system. The batch scheduler publishes lifecycle events
// without knowing which handlers will process them (currently the HTTP streaming
// surface), enabling better separation of concerns and reducing circular dependencies.
//
// The primary components are:
// - BatchEvent: Represents one state transition of a generation batch
// - Handler: Interface for components that can handle events
// - Emitter: Interface for components that can emit events
package events
