/*
Copyright 2024 The go-netflow Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package netflow

// TemplateProtocol tags template lifecycle events and missing-template
// errors with the protocol whose cache they concern.
type TemplateProtocol uint8

const (
	TemplateProtocolV9 TemplateProtocol = iota
	TemplateProtocolIPFIX
)

func (p TemplateProtocol) String() string {
	if p == TemplateProtocolIPFIX {
		return "ipfix"
	}
	return "v9"
}

// TemplateEventKind enumerates template cache lifecycle transitions.
type TemplateEventKind string

const (
	// TemplateLearned fires when a template is inserted for the first time
	TemplateLearned TemplateEventKind = "learned"
	// TemplateCollision fires when a template id is reused with a different
	// field list. The old definition is replaced. Collisions usually mean
	// multiple exporters share one unscoped parser; use AutoScopedParser.
	TemplateCollision TemplateEventKind = "collision"
	// TemplateEvicted fires when the LRU policy removes the least recently
	// used template to make room
	TemplateEvicted TemplateEventKind = "evicted"
	// TemplateExpired fires when a template older than the configured TTL is
	// dropped on access
	TemplateExpired TemplateEventKind = "expired"
	// TemplateMissing fires when a data flowset references a template id
	// that is not cached
	TemplateMissing TemplateEventKind = "missing"
)

// TemplateEvent describes one template cache lifecycle transition.
type TemplateEvent struct {
	Kind       TemplateEventKind
	TemplateId uint16
	Protocol   TemplateProtocol
}

// TemplateHook receives template lifecycle events. Hooks are invoked
// synchronously on the decoding goroutine and must not block; implementations
// needing to do real work should hand the event off to a channel.
type TemplateHook func(TemplateEvent)

// templateHooks fans a lifecycle event out to every registered hook.
// Registration happens at parser construction; triggering is read-only, so
// no synchronization is needed on the hot path.
type templateHooks struct {
	hooks []TemplateHook
}

func (h *templateHooks) register(hook TemplateHook) {
	h.hooks = append(h.hooks, hook)
}

func (h *templateHooks) trigger(event TemplateEvent) {
	for _, hook := range h.hooks {
		hook(event)
	}
	TemplateEventsTotal.WithLabelValues(event.Protocol.String(), string(event.Kind)).Inc()
}
