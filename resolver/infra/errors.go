package infra

import "github.com/hashicorp/go-multierror"

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return multierror.Append(nil, errs...).ErrorOrNil()
}
