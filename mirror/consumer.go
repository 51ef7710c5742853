// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package mirror

// Consumer receives the mirrored model. The engine calls AcceptModel
// from its loop after every reconciliation step — exactly once per
// applied notification — with a deep copy of the current group
// sequence. A single consumer owns the copy and may retain or mutate
// it freely.
type Consumer interface {
	AcceptModel(groups []Group)
}

// ConsumerFunc adapts a plain function to the Consumer interface.
type ConsumerFunc func(groups []Group)

// AcceptModel calls f.
func (f ConsumerFunc) AcceptModel(groups []Group) { f(groups) }

// MultiConsumer returns a Consumer that hands each snapshot to every
// given consumer in order. The snapshot is shared between them, so
// consumers composed this way must treat it as read-only.
func MultiConsumer(consumers ...Consumer) Consumer {
	return multiConsumer(consumers)
}

type multiConsumer []Consumer

func (m multiConsumer) AcceptModel(groups []Group) {
	for _, consumer := range m {
		consumer.AcceptModel(groups)
	}
}
