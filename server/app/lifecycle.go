// Package app 定義長期運行元件的最小生命週期抽象。
package app

import "context"

// Component 任何可啟動、可關閉的長生命週期元件（HTTP server、SessionPool）。
//   - Run() 阻塞直到元件停止。
//   - Shutdown(ctx) 要求優雅關閉，須尊重 ctx deadline。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// Closer 只需要在關閉時收尾的資源（例如 SessionPool 寫回所有存檔）。
type Closer interface {
	Close(ctx context.Context) error
}

// Hold 把 Closer 包成 Component：Run 阻塞到 Shutdown 被呼叫為止。
func Hold(c Closer) Component {
	return &hold{c: c, done: make(chan struct{})}
}

type hold struct {
	c    Closer
	done chan struct{}
}

func (h *hold) Run() error {
	<-h.done
	return nil
}

func (h *hold) Shutdown(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	default:
		close(h.done)
	}
	return h.c.Close(ctx)
}
