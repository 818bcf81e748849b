package netflow_test

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	netflow "github.com/flowkit/go-netflow"
)

// Decode a datagram that a transport layer already received. A single Parser
// keeps the template caches between calls, so templates announced in earlier
// packets resolve data records in later ones. This is the right shape when
// all packets come from one exporter; use AutoScopedParser when they do not.
func Example_parser() {
	ctx := context.Background()

	parser := netflow.NewParser(netflow.ParserOptions{
		TemplateCacheSize: 1024,
	})

	payload := receiveDatagram()

	result := parser.ParseBytes(ctx, payload)
	if result.Error != nil {
		// packets decoded before the error are still in result.Packets
		log.Printf("decode: %v", result.Error)
	}
	for _, pkt := range result.Packets {
		for _, flow := range netflow.Common(pkt).Flows {
			log.Printf("%s:%d -> %s:%d %s",
				flow.SrcAddr, flow.SrcPort, flow.DstAddr, flow.DstPort, flow.ProtocolName)
		}
	}
}

// Collect flow packets from many exporters over UDP. The AutoScopedParser
// keys template state by exporter address and observation domain, so two
// routers may both announce template 256 with different schemas without
// clobbering each other.
func Example_collector() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
	}()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: 2055})
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	scoped := netflow.NewAutoScopedParser(netflow.ParserOptions{
		TemplateTtl: 30 * time.Minute,
	})
	scoped.OnTemplateEvent(func(e netflow.TemplateEvent) {
		log.Printf("template %d: %s", e.TemplateId, e.Kind)
	})

	buf := make([]byte, 65535)
	for ctx.Err() == nil {
		n, addr, err := conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			log.Printf("read: %v", err)
			continue
		}
		result := scoped.Parse(ctx, addr, buf[:n])
		if result.Error != nil {
			log.Printf("decode from %s: %v", addr, result.Error)
		}
		for _, pkt := range result.Packets {
			log.Printf("decoded version %d packet from %s", pkt.Version(), addr)
		}
	}
}

// Walk a buffer holding several back-to-back packets, for instance a capture
// file, without giving up at the first malformed one.
func Example_iterator() {
	ctx := context.Background()

	capture, _ := os.ReadFile("flows.bin")

	parser := netflow.NewParser()
	it := parser.Iterate(ctx, capture)
	for it.Next() {
		log.Printf("version %d", it.Packet().Version())
	}
	if it.Err() != nil {
		log.Printf("stopped with %d bytes left: %v", it.Remaining(), it.Err())
	}
}

func receiveDatagram() []byte {
	return nil
}
