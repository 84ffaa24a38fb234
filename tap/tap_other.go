//go:build !linux

package tap

func platformOpen(Options) (backend, error) {
	return nil, ErrUnsupported
}

func platformListDevices() ([]DeviceInfo, error) {
	return nil, ErrUnsupported
}
