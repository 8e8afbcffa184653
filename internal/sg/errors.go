package sg

import "github.com/scidb-go/arraydb/internal/arrerrors"

func errUnknownInstance(instance int) error {
	return arrerrors.New(arrerrors.ClassNetwork, arrerrors.CodeUnknownMessageType, "no producer registered for instance %d", instance)
}
