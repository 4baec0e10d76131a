package sealevel

const (
	CUSyscallBaseCost                       = 100
	CULog64Units                            = 100
	CUMemOpBaseCost                         = 10
	CUCpiBytesPerUnit                       = 250
	CUCreateProgramAddressUnits             = 1500
	CUInvokeUnits                           = 1000
	CUSystemProgramDefaultComputeUnits      = 150
	CUAddressLookupTableDefaultComputeUnits = 750
)
