// Package discovery locates VyOS management APIs on the local network.
//
// Routers running the management API can advertise it over multicast DNS
// with the "_vyos-api._tcp" service type. The scanner browses for that
// service and turns each advertisement into an Endpoint whose BaseURL can
// be handed straight to the API client or saved as a profile.
//
// # TXT Records
//
// Advertisements may carry key=value TXT records. Two keys are interpreted:
//   - scheme: "http" or "https"; without it the port decides (80 and 8080
//     mean http, anything else https)
//   - version: the VyOS release, shown by Endpoint.String
//
// Every record is kept in Endpoint.Metadata regardless.
//
// # Usage Example
//
//	endpoints, err := discovery.QuickScan(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, ep := range endpoints {
//	    fmt.Println(ep)
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - The router must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
