// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

// Image executable signatures.
const (
	// The DOS MZ executable format is the executable file format used
	// for .EXE files in DOS.
	ImageDOSSignature   = 0x5A4D // MZ
	ImageDOSZMSignature = 0x4D5A // ZM

	// The New Executable (NE) format, a predecessor of PE. Probed for so
	// the InvalidData error can name the format that was found.
	ImageOS2Signature = 0x454E

	// Linear Executable, used by 32-bit OS/2 and some DOS extenders.
	ImageOS2LESignature = 0x454C

	// Another member of the LE family.
	ImageVXDSignature = 0x584C

	// Terse Executables have a 'VZ' signature.
	ImageTESignature = 0x5A56

	// The Portable Executable (PE) format is a file format for executables,
	// object code, DLLs and others used in 32-bit and 64-bit versions of
	// Windows operating systems.
	ImageNTSignature = 0x00004550 // PE00
)

// Optional header magic values.
const (
	ImageNtOptionalHeader32Magic = 0x10b
	ImageNtOptionalHeader64Magic = 0x20b
	ImageROMOptionalHeaderMagic  = 0x10
)

// Image file machine types, used only for diagnostics.
const (
	ImageFileMachineUnknown   = uint16(0x0)
	ImageFileMachineAM33      = uint16(0x1d3)
	ImageFileMachineAMD64     = uint16(0x8664)
	ImageFileMachineARM       = uint16(0x1c0)
	ImageFileMachineARM64     = uint16(0xaa64)
	ImageFileMachineARMNT     = uint16(0x1c4)
	ImageFileMachineEBC       = uint16(0xebc)
	ImageFileMachineI386      = uint16(0x14c)
	ImageFileMachineIA64      = uint16(0x200)
	ImageFileMachineM32R      = uint16(0x9041)
	ImageFileMachineMIPS16    = uint16(0x266)
	ImageFileMachineMIPSFPU   = uint16(0x366)
	ImageFileMachineMIPSFPU16 = uint16(0x466)
	ImageFileMachinePowerPC   = uint16(0x1f0)
	ImageFileMachinePowerPCFP = uint16(0x1f1)
	ImageFileMachineR4000     = uint16(0x166)
	ImageFileMachineRISCV32   = uint16(0x5032)
	ImageFileMachineRISCV64   = uint16(0x5064)
	ImageFileMachineRISCV128  = uint16(0x5128)
	ImageFileMachineSH3       = uint16(0x1a2)
	ImageFileMachineSH3DSP    = uint16(0x1a3)
	ImageFileMachineSH4       = uint16(0x1a6)
	ImageFileMachineSH5       = uint16(0x1a8)
	ImageFileMachineTHUMB     = uint16(0x1c2)
	ImageFileMachineWCEMIPSv2 = uint16(0x169)
)

// The Characteristics field of the COFF file header.
const (
	ImageFileRelocsStripped       = 0x0001
	ImageFileExecutableImage      = 0x0002
	ImageFileLineNumsStripped     = 0x0004
	ImageFileLocalSymsStripped    = 0x0008
	ImageFileAggressiveWSTrim     = 0x0010
	ImageFileLargeAddressAware    = 0x0020
	ImageFileBytesReservedLow     = 0x0080
	ImageFile32BitMachine         = 0x0100
	ImageFileDebugStripped        = 0x0200
	ImageFileRemovableRunFromSwap = 0x0400
	ImageFileNetRunFromSwap       = 0x0800
	ImageFileSystem               = 0x1000
	ImageFileDLL                  = 0x2000
	ImageFileUpSystemOnly         = 0x4000
	ImageFileBytesReservedHigh    = 0x8000
)

// Subsystem values of an OptionalHeader.
const (
	ImageSubsystemUnknown                = 0
	ImageSubsystemNative                 = 1
	ImageSubsystemWindowsGUI             = 2
	ImageSubsystemWindowsCUI             = 3
	ImageSubsystemOS2CUI                 = 5
	ImageSubsystemPosixCUI               = 7
	ImageSubsystemNativeWindows          = 8
	ImageSubsystemWindowsCEGUI           = 9
	ImageSubsystemEFIApplication         = 10
	ImageSubsystemEFIBootServiceDriver   = 11
	ImageSubsystemEFIRuntimeDriver       = 12
	ImageSubsystemEFIRom                 = 13
	ImageSubsystemXBOX                   = 14
	ImageSubsystemWindowsBootApplication = 16
)

// DllCharacteristics values of an OptionalHeader.
const (
	ImageDllCharacteristicsHighEntropyVA        = 0x0020
	ImageDllCharacteristicsDynamicBase          = 0x0040
	ImageDllCharacteristicsForceIntegrity       = 0x0080
	ImageDllCharacteristicsNXCompact            = 0x0100
	ImageDllCharacteristicsNoIsolation          = 0x0200
	ImageDllCharacteristicsNoSEH                = 0x0400
	ImageDllCharacteristicsNoBind               = 0x0800
	ImageDllCharacteristicsAppContainer         = 0x1000
	ImageDllCharacteristicsWdmDriver            = 0x2000
	ImageDllCharacteristicsGuardCF              = 0x4000
	ImageDllCharacteristicsTerminalServiceAware = 0x8000
)

// ImageDirectoryEntry represents an entry inside the data directories.
type ImageDirectoryEntry int

// DataDirectory entries of an OptionalHeader. Only ImageDirectoryEntryCLR
// is ever consulted by this reader; the rest of the array is retained so
// the 16-entry layout mirrors the real IMAGE_OPTIONAL_HEADER.
const (
	ImageDirectoryEntryExport       ImageDirectoryEntry = iota // Export Table
	ImageDirectoryEntryImport                                  // Import Table
	ImageDirectoryEntryResource                                // Resource Table
	ImageDirectoryEntryException                               // Exception Table
	ImageDirectoryEntryCertificate                             // Certificate Directory
	ImageDirectoryEntryBaseReloc                               // Base Relocation Table
	ImageDirectoryEntryDebug                                   // Debug
	ImageDirectoryEntryArchitecture                            // Architecture Specific Data
	ImageDirectoryEntryGlobalPtr                               // The RVA of the value stored in the global pointer register
	ImageDirectoryEntryTLS                                     // The thread local storage (TLS) table
	ImageDirectoryEntryLoadConfig                              // The load configuration table
	ImageDirectoryEntryBoundImport                              // The bound import table
	ImageDirectoryEntryIAT                                     // Import Address Table
	ImageDirectoryEntryDelayImport                             // Delay Import Descriptor
	ImageDirectoryEntryCLR                                     // CLR Runtime Header / COM descriptor
	ImageDirectoryEntryReserved                                // Must be zero
	ImageNumberOfDirectoryEntries                              // Tables count.
)

// String stringifies the data directory entry.
func (entry ImageDirectoryEntry) String() string {
	names := map[ImageDirectoryEntry]string{
		ImageDirectoryEntryExport:       "Export",
		ImageDirectoryEntryImport:       "Import",
		ImageDirectoryEntryResource:     "Resource",
		ImageDirectoryEntryException:    "Exception",
		ImageDirectoryEntryCertificate:  "Security",
		ImageDirectoryEntryBaseReloc:    "Relocation",
		ImageDirectoryEntryDebug:        "Debug",
		ImageDirectoryEntryArchitecture: "Architecture",
		ImageDirectoryEntryGlobalPtr:    "GlobalPtr",
		ImageDirectoryEntryTLS:          "TLS",
		ImageDirectoryEntryLoadConfig:   "LoadConfig",
		ImageDirectoryEntryBoundImport:  "BoundImport",
		ImageDirectoryEntryIAT:          "IAT",
		ImageDirectoryEntryDelayImport:  "DelayImport",
		ImageDirectoryEntryCLR:          "CLR",
		ImageDirectoryEntryReserved:     "Reserved",
	}
	return names[entry]
}

// FileInfo carries coarse-grained facts about how far parsing progressed,
// used for diagnostics and by Options.Fast callers who only want the PE
// header.
type FileInfo struct {
	Is32      bool
	Is64      bool
	HasDOSHdr bool
	HasNTHdr  bool
	HasSections bool
	HasCLR    bool
}
