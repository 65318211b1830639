// Package amas runs groups of in-process agents.
//
// Agents (package agent) are wired by a mailbox.Registry and then handed to an
// Environment, which drives every assigned task concurrently until the agents
// finish:
//
//	reg, err := mailbox.NewRegistry(foo, bar, observer)
//	if err != nil {
//		return err
//	}
//	defer reg.Close()
//
//	env := amas.NewEnvironment([]*agent.Agent{foo, bar, observer})
//	return env.Run(ctx)
//
// Parallelize runs the same scheduling domain in the background, controlled
// through Join and Kill. Config and ConfigLoader read the YAML file used by the
// amas command.
package amas
