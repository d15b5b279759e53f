/*
Package runner implements the interactive conversation loop.

It is the bridge between a Responder (usually a session.Manager) and the
outside world. The loop reads one line per turn, sanitizes it, asks the
responder for a reply and prints it through a pluggable IOHandler. It stops
on exit/quit, end of input or an interrupt.

# Key Components

  - Runner: the loop itself.
  - IOHandler: decouples how lines are read and replies are written.
  - TextHandler: prompt and "Name: reply" lines for terminals.
  - JSONHandler: newline-delimited JSON for scripted clients.

# Usage

	r := runner.NewRunner(
		runner.WithResponder(manager),
		runner.WithName(bot.Name()),
		runner.WithSessionID("local"),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
