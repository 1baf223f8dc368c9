package broker

import "go.uber.org/fx"

// Module provides the token lifecycle engine
var Module = fx.Module("broker",
	fx.Provide(
		New,
	),
)
