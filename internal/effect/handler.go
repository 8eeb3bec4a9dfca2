package effect

// Handler reacts to a trigger for one equip key.
type Handler interface {
	Handle(ctx *Context) Result
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx *Context) Result

func (f HandlerFunc) Handle(ctx *Context) Result { return f(ctx) }

// On restricts a handler to the listed triggers; any other trigger skips.
func On(fn HandlerFunc, triggers ...Trigger) Handler {
	set := make(map[Trigger]struct{}, len(triggers))
	for _, t := range triggers {
		set[t] = struct{}{}
	}
	return HandlerFunc(func(ctx *Context) Result {
		if _, ok := set[ctx.Trigger]; !ok {
			return Skip()
		}
		return fn(ctx)
	})
}
