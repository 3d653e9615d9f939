package simdevice

import (
	"context"
	"sync"

	"github.com/waehniger/mdpnp/internal/adapters/executor"
)

// Generator runs a single simulated device on its own serial executor and
// hands batches straight to a consumer, for callers that need neither YAML
// nor a queue and sink.
type Generator struct {
	pub  *Publisher
	exec *executor.Serial

	closeOnce sync.Once
	closeErr  error
}

func NewGenerator(kind string, cfg GeneratorConfig, consumer Consumer, opts ...PublisherOption) (*Generator, error) {
	pub, err := NewPublisher(kind, cfg, consumer, opts...)
	if err != nil {
		return nil, err
	}
	return &Generator{pub: pub, exec: executor.NewSerial()}, nil
}

func (g *Generator) Publisher() *Publisher { return g.pub }

// Start connects the generator; ErrAlreadyConnected if it already runs.
func (g *Generator) Start() error { return g.pub.Connect(g.exec) }

// Stop disconnects; Start may be called again afterwards and the tick index
// carries on.
func (g *Generator) Stop() { g.pub.Disconnect() }

// Close stops the generator for good and waits for the executor to exit,
// respecting the provided context.
func (g *Generator) Close(ctx context.Context) error {
	g.closeOnce.Do(func() {
		g.pub.Disconnect()
		g.closeErr = g.exec.Shutdown(ctx)
	})
	return g.closeErr
}
