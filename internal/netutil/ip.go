package netutil

import (
	"fmt"
	"net"
)

// OutboundIPNet scans the network interfaces for the first up, non-loopback
// IPv4 address. Used both as the analytics key of a dedicated server and as
// the ip_list entry of a deploy request.
func OutboundIPNet() (net.IPNet, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return net.IPNet{}, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			return net.IPNet{}, err
		}

		for _, addr := range addrs {
			var ipnet *net.IPNet
			var ip net.IP

			switch v := addr.(type) {
			case *net.IPNet:
				ipnet = v
				ip = v.IP

			case *net.IPAddr:
				ip = v.IP
			}

			if ip != nil && ip.To4() != nil && !ip.IsLoopback() {
				if ipnet != nil {
					return *ipnet, nil
				}
				return net.IPNet{IP: ip, Mask: net.CIDRMask(32, 32)}, nil
			}
		}
	}

	return net.IPNet{}, fmt.Errorf("no usable ipv4 interface found")
}

func OutboundIP() (string, error) {
	ipnet, err := OutboundIPNet()
	if err != nil {
		return "", err
	}
	return ipnet.IP.To4().String(), nil
}
