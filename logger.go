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

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
)

// logger is the package-level logger all components log through. It discards
// everything until SetLogger installs a real sink; the library never
// configures log output on its own.
var logger = logr.Discard()

var loggerMu sync.Mutex

// SetLogger installs the logr.Logger used by this package. Template expiry
// and eviction, scope creation and packet-level decode failures log at V(1);
// nothing logs on the per-record path.
//
// SetLogger should be called before constructing parsers. Calling it later
// is safe but racy with respect to in-flight parses.
func SetLogger(l logr.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l.WithName("netflow")
}

// FromContext returns the logger embedded in ctx, if any, and the package
// logger otherwise.
func FromContext(ctx context.Context, keysAndValues ...interface{}) logr.Logger {
	log := logger
	if ctx != nil {
		if l, err := logr.FromContext(ctx); err == nil {
			log = l
		}
	}
	return log.WithValues(keysAndValues...)
}

// IntoContext embeds l into ctx for handing loggers through the cache
// interfaces.
func IntoContext(ctx context.Context, l logr.Logger) context.Context {
	return logr.NewContext(ctx, l)
}
