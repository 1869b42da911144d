// Package canutil provides the data types and plumbing a CAN or CAN-FD
// driver composes with the timing package.
//
// It includes:
//   - Classic Frame and FDFrame types with SocketCAN binary layouts
//   - CAN-FD DLC to byte count conversion
//   - Fault confinement, operation mode and message filter types
//   - A context-aware Bus interface with loopback, logging and Linux
//     SocketCAN implementations
//   - Linux interface configuration that programs computed bit timings
package canutil
