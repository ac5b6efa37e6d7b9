package cmd

import "go.uber.org/fx"

var Module = fx.Module("cli",
	fx.Provide(
		connector,
		fx.Annotate(migrate, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(status, fx.ResultTags(`group:"commands"`)),
	),
	fx.Invoke(Run),
)
