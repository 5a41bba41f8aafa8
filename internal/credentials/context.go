package credentials

import "context"

// Runtime is a per-call credential override. It fully supersedes environment
// and stored credentials for that call only, and any key minted under it is
// never written to disk.
type Runtime struct {
	APIKey     string
	Login      string
	Password   string
	IndexerURL string
}

func (r *Runtime) hasLogin() bool {
	return r.Login != "" && r.Password != ""
}

type runtimeKey struct{}

// WithRuntime attaches a per-call credential override to the context.
func WithRuntime(ctx context.Context, ov *Runtime) context.Context {
	if ov == nil {
		return ctx
	}
	return context.WithValue(ctx, runtimeKey{}, ov)
}

func runtimeFrom(ctx context.Context) (*Runtime, bool) {
	ov, ok := ctx.Value(runtimeKey{}).(*Runtime)
	return ov, ok && ov != nil
}
