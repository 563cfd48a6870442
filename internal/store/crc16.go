package store

// crc16Table is the XMODEM polynomial (0x1021) CRC16 table, the same
// construction Redis Cluster uses for hash-slot routing. Grounded on
// original_source/component/src/db/mod.rs's key_to_slot, which routes
// keys with this exact algorithm.
var crc16Table = func() [256]uint16 {
	const poly = 0x1021
	var t [256]uint16
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}()

// crc16 computes the XMODEM CRC16 of b.
func crc16(b []byte) uint16 {
	var crc uint16
	for _, c := range b {
		crc = (crc << 8) ^ crc16Table[byte(crc>>8)^c]
	}
	return crc
}
