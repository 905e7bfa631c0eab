package cookies

import "context"

// Result carries either a value or the error that prevented producing it.
type Result[T any] struct {
	Value T
	Err   error
}

// Resolve wraps a value/error pair.
func Resolve[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Err: err}
}

// Unwrap returns the value and error.
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}

// OK reports whether the result carries no error.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Callback receives the completion of a store operation.
type Callback[T any] func(err error, value T)

// Done is the callback for operations that produce no value.
type Done func(err error)

// CallbackStore adapts a Store to completion callbacks for callers that
// treat synchronous and asynchronous backends alike. Every method invokes
// its callback exactly once before returning.
type CallbackStore struct {
	store Store
	ctx   context.Context
}

// NewCallbackStore wraps store. Operations run with ctx.
func NewCallbackStore(ctx context.Context, store Store) *CallbackStore {
	return &CallbackStore{store: store, ctx: ctx}
}

// Synchronous reports that callbacks fire before the call returns.
func (s *CallbackStore) Synchronous() bool {
	return true
}

// FindCookie looks up a single cookie. cb receives nil when it is absent.
func (s *CallbackStore) FindCookie(domain, path, key string, cb Callback[*Cookie]) {
	complete(Resolve(s.store.Find(s.ctx, domain, path, key)), cb)
}

// FindCookies looks up the cookies applicable to domain and path.
func (s *CallbackStore) FindCookies(domain, path string, allowSpecialUse bool, cb Callback[[]*Cookie]) {
	complete(Resolve(s.store.FindAll(s.ctx, domain, path, allowSpecialUse)), cb)
}

// PutCookie stores a cookie.
func (s *CallbackStore) PutCookie(cookie *Cookie, cb Done) {
	cb(s.store.Put(s.ctx, cookie))
}

// UpdateCookie replaces oldCookie with newCookie.
func (s *CallbackStore) UpdateCookie(oldCookie, newCookie *Cookie, cb Done) {
	cb(s.store.Update(s.ctx, oldCookie, newCookie))
}

// RemoveCookie deletes a single cookie.
func (s *CallbackStore) RemoveCookie(domain, path, key string, cb Done) {
	cb(s.store.Remove(s.ctx, domain, path, key))
}

// RemoveCookies deletes a path or a whole domain.
func (s *CallbackStore) RemoveCookies(domain, path string, cb Done) {
	cb(s.store.RemoveAll(s.ctx, domain, path))
}

// RemoveAllCookies empties the store.
func (s *CallbackStore) RemoveAllCookies(cb Done) {
	cb(s.store.RemoveEverything(s.ctx))
}

// GetAllCookies lists every cookie, oldest first.
func (s *CallbackStore) GetAllCookies(cb Callback[[]*Cookie]) {
	complete(Resolve(s.store.GetAll(s.ctx)), cb)
}

func complete[T any](r Result[T], cb Callback[T]) {
	cb(r.Err, r.Value)
}
