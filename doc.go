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

/*
Package netflow decodes and re-encodes Cisco-style flow telemetry datagrams:
NetFlow v5 and v7 (fixed-layout records), NetFlow v9 (RFC 3954) and IPFIX
(RFC 7011). A single buffer may chain any number of packets of any supported
version; the parser yields a strongly typed packet per datagram and can
reproduce the original bytes from the parsed form.

v9 and IPFIX data records carry no intrinsic schema. Their layout is dictated
by templates that exporters announce in-band, so the parser is stateful: it
learns templates into per-protocol LRU caches (with optional TTL expiry) and
decodes data flowsets against them. Template identifiers are only unique
within an exporter's observation domain (IPFIX) or source id (v9); the
AutoScopedParser front-end keeps one parser per scope so that exporters
reusing the same template id cannot corrupt each other's state.

Basic usage with a single exporter:

	parser := netflow.NewParser()
	result := parser.ParseBytes(ctx, payload)
	for _, packet := range result.Packets {
		// ...
	}
	if result.Error != nil {
		// packets decoded before the error are still in result.Packets
	}

For multi-exporter collection, hand the source address to the scoped
front-end instead:

	scoped := netflow.NewAutoScopedParser()
	result := scoped.Parse(ctx, source, payload)

Decoding is aggressive about validation (bounded field counts, bounded
template sizes, duplicate field rejection) while tolerating the benign
anomalies that are routine in flow collection, such as retransmitted
templates and data arriving before its template.
*/
package netflow
