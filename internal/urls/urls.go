package urls

// Documentation URLs shown in hints and command help.

// VyOSHTTPAPI describes enabling the HTTP API service on the router.
const VyOSHTTPAPI = "https://docs.vyos.io/en/latest/configuration/service/https.html"

// VyOSInterfaces documents ethernet and VLAN interface options,
// including the ARP and adjust-mss settings.
const VyOSInterfaces = "https://docs.vyos.io/en/latest/configuration/interfaces/ethernet.html"

// VyOSNAT documents source, destination and static NAT rules.
const VyOSNAT = "https://docs.vyos.io/en/latest/configuration/nat/nat44.html"

// VyOSFirewall documents IPv4 firewall chains and rules.
const VyOSFirewall = "https://docs.vyos.io/en/latest/configuration/firewall/index.html"

// VyOSPolicy documents route-maps, access lists, prefix lists and
// community lists.
const VyOSPolicy = "https://docs.vyos.io/en/latest/configuration/policy/index.html"

// VyOSStaticRoutes documents static routing.
const VyOSStaticRoutes = "https://docs.vyos.io/en/latest/configuration/protocols/static.html"

// VyOSDHCPServer documents DHCP shared networks and subnets.
const VyOSDHCPServer = "https://docs.vyos.io/en/latest/configuration/service/dhcp-server.html"
