package requester

import (
	"go.uber.org/fx"
)

// Module provides the requester module dependencies
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(
			NewHTTPRequester,
			fx.As(new(Client)),
		),
	),
)
