package reconcile

import "context"

// DisableSourceDestCheck lets the instance forward traffic for other hosts.
// The call is made unconditionally; disabling twice is harmless.
func (r *Reconciler) DisableSourceDestCheck(ctx context.Context, instanceID string) error {
	if instanceID == "" {
		return ErrMissingInstanceID
	}
	if err := r.clients.Instances.DisableSourceDestCheck(ctx, instanceID); err != nil {
		return err
	}
	r.logger.Info("source/destination check disabled", "instance", instanceID)
	return nil
}
